package main

import (
	"log"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
