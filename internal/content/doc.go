// Package content enumerates the routes of the documentation corpus.
//
// Markdown files under the docs directory are mapped to URLs the way the site
// generator routes them; generated tag and pagination listings are added so the
// sitemap sees every page the site will publish. Page bodies are never rendered.
package content
