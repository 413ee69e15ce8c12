// Package config provides configuration structures and utilities for wcagscan.
//
// Configuration comes from four layers, applied in order: built-in defaults,
// the optional .wcagscan YAML file, the environment (optionally merged with a
// .env file) through Resolve, and finally CLI flags. The result is a single
// Config validated once before any target is processed.
package config
