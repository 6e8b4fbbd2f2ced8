// @title           Polyglot API
// @version         1.0
// @description     Offline translation assistant: text, image and voice translation on a local model.
// @host            localhost:8000
// @BasePath        /api
package main

import (
	"os"

	"polyglot/backend/internal/app"
)

func main() {
	os.Exit(app.Run())
}
