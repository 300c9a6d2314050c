package main

import (
	"log"

	"github.com/Jfafa/Stibo-auth/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
