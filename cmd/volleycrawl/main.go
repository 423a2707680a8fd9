// Command volleycrawl runs the crawl service: a control API with an
// auto-update daemon, plus one-shot crawl and maintenance commands.
package main

func main() {
	Execute()
}
