package main

import (
	"flag"
	"log"

	"stagegate/ui"
)

func main() {
	var (
		addr      = flag.String("addr", ":8081", "listen address")
		perDomain = flag.Int("entities", 10, "demo entities per domain")
		seed      = flag.Int64("seed", 42, "demo data seed")
	)
	flag.Parse()

	server, err := ui.NewServer(*perDomain, *seed)
	if err != nil {
		log.Fatalf("demo server init: %v", err)
	}
	log.Printf("Starting stagegate demo server on %s (seed=%d)", *addr, *seed)
	if err := server.Run(*addr); err != nil {
		log.Fatalf("demo server: %v", err)
	}
}
