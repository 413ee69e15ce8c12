// Package browser owns the headless Chrome instance shared by a scan run.
//
// A Session launches one browser through chromedp and hands out one tab per
// target as a Page. Pages share the browser's cookie jar, so a login made on
// one target stays valid for the following ones. Callers must Close every
// Page before opening the next and Stop the Session at the end of the run.
//
// Page is the narrow capability the login and scanner packages depend on;
// tests substitute an in-memory fake for it.
package browser
