package types

import (
	"context"
	"fmt"

	"wellnest/internal/app/client"
)

type contextKey string

// ClientAppKey ключ, под которым в контексте команды лежит *client.App
const ClientAppKey contextKey = "app"

// WithApp кладет приложение в контекст команды
func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, ClientAppKey, app)
}

// AppFrom достает приложение из контекста команды
func AppFrom(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}
