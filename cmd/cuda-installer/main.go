package main

import "github.com/oshokin/cuda-installer/cmd/cuda-installer/cmd"

func main() {
	cmd.Execute()
}
