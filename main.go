package main

import "github.com/seorin-dev/moodlog/cmd"

func main() {
	cmd.Execute()
}
