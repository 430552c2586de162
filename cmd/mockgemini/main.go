// Command mockgemini serves a canned Gemini generateContent reply so the
// server can run locally without an API key:
//
//	go run ./cmd/mockgemini &
//	GEMINI_API_KEY=dummy GEMINI_BASE_URL=http://localhost:9000 go run ./cmd/server
package main

import (
	"flag"
	"net/http"

	"github.com/HanTheDev/complexity-analyzer/internal/llm/geminitest"
	"github.com/sirupsen/logrus"
)

const defaultReply = "```json\n" + `{
    "time_complexity": "O(n)",
    "space_complexity": "O(1)",
    "explanation": "Single pass over the input with constant extra state.",
    "time_confidence": "high",
    "space_confidence": "high"
}` + "\n```"

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	reply := flag.String("reply", defaultReply, "text returned for every generateContent call")
	flag.Parse()

	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Mock Gemini starting on %s", *addr)
	if err := http.ListenAndServe(*addr, geminitest.NewStub(*reply)); err != nil {
		logrus.Fatal("Mock Gemini failed: ", err)
	}
}
