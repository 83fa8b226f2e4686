package main

import "github.com/JaegunS/true-ai-builders/cmd"

func main() {
	cmd.Execute()
}
