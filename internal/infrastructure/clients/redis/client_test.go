package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/asoradar/pkg/config"
)

func TestNewClient_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, &config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Nil(t, client)
	assert.Error(t, err)
}
