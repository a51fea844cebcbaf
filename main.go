package main

import (
	"encoding/json"
	"fmt"

	"github.com/keybridge/go-keybridge/blobs"
	"github.com/keybridge/go-keybridge/relay"
)

func main() {
	if err := extractBlob(); err != nil {
		panic(err)
	}
}

func extractBlob() error {
	components, err := relay.ExtractCertificateKey([]byte(blobs.SigningCertPEM))
	if err != nil {
		return err
	}

	prettyPrint, err := json.MarshalIndent(struct {
		Modulus  string
		Exponent string
		Size     int
	}{components.ModulusHex(), components.ExponentHex(), components.Size()}, "", " ")
	if err != nil {
		return err
	}

	fmt.Println(string(prettyPrint))

	return nil
}
