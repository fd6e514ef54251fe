package main

import "github.com/denysvitali/photowall-server/cmd"

func main() {
	cmd.Execute()
}
