// Command patch applies a suggestion file to HTML on disk.
//
// The suggestion file is JSON (a record list or an envelope with
// structured_data), YAML or TOML. The input is one HTML file or a directory
// whose files are selected with a doublestar pattern.
//
// Usage:
//
//	patch -suggestions seo.yaml -in page.html -url https://shop.example/p
//	patch -suggestions seo.json -in site/ -out build/ -base https://shop.example
//	patch -suggestions seo.toml -in site/ -pattern 'blog/**/*.html' -dry-run
//
// A JSON report of every file is printed to stdout. The exit status is 1
// when any file failed.
package main
