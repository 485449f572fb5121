// Command stratadam runs the digital asset manager catalog service.
package main

import (
	"context"

	"github.com/dalemusser/waffle/app"

	"github.com/dalemusser/stratadam/internal/app/bootstrap"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
