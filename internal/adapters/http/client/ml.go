package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/trendscope/internal/domain/model"
)

// ModelStatus reports which ML models are loaded.
func (c *Client) ModelStatus(ctx context.Context) (model.MLStatus, error) {
	return fetch[model.MLStatus](ctx, c, call{
		method:   http.MethodGet,
		segments: []string{"ml", "models", "status"},
	})
}

// TrainModels retrains the ML models. The server restricts it to premium
// accounts and reports the outcome in message and metadata only.
func (c *Client) TrainModels(ctx context.Context) (model.TrainResult, error) {
	env, err := send[json.RawMessage](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"ml", "models", "train"},
	})
	if err != nil {
		return model.TrainResult{}, err
	}
	res := model.TrainResult{Message: env.Message}
	if env.Metadata != nil {
		res.TrainingTimeMS = env.Metadata.TrainingTimeMS
	}
	return res, nil
}
