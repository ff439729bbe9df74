package main

import (
	"flag"
	"fmt"
	"os"

	config "github.com/inference-gateway/instruct-agent/config"
	mdgen "github.com/inference-gateway/instruct-agent/internal/mdgen"
)

var (
	output string
	_type  string
)

func init() {
	flag.StringVar(&output, "output", "", "Path to the output file")
	flag.StringVar(&_type, "type", "", "The type of the file to generate (Env or MD)")
}

func main() {
	flag.Parse()

	if output == "" || _type == "" {
		fmt.Println("Both -output and -type must be specified")
		os.Exit(1)
	}

	var err error
	switch _type {
	case "Env":
		err = mdgen.GenerateEnvExample(output, config.Config{})
	case "MD":
		err = mdgen.GenerateConfigurationsMD(output, config.Config{})
	default:
		fmt.Println("Invalid type specified")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error writing %s: %v\n", output, err)
		os.Exit(1)
	}
}
