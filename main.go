package main

import (
	"log"

	"yashubustudio/symptomchat/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("symptomchat: %v", err)
	}
}
