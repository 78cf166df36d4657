package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/pkg"
)

const (
	chatKeyPrefix = "chat:"

	// maxStoredMessages bounds a game's chat list.
	maxStoredMessages = 1000
)

type MessageRepository interface {
	Append(ctx context.Context, gameID string, sender entity.User, content string) (*entity.Message, error)
	History(ctx context.Context, gameID string, limit int) ([]entity.Message, error)
}

type dbMessage struct {
	client *redis.Client
}

func NewMessageRepository(client *redis.Client) MessageRepository {
	return &dbMessage{
		client: client,
	}
}

func (that *dbMessage) Append(ctx context.Context, gameID string, sender entity.User, content string) (*entity.Message, error) {
	message := &entity.Message{
		ID:        pkg.GenerateID(),
		GameID:    gameID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	key := chatKeyPrefix + gameID
	pipe := that.client.TxPipeline()
	pipe.RPush(ctx, key, messageJSON)
	pipe.LTrim(ctx, key, -maxStoredMessages, -1)

	if _, err = pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return message, nil
}

// History returns up to limit most recent messages, oldest first.
func (that *dbMessage) History(ctx context.Context, gameID string, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		return []entity.Message{}, nil
	}

	raw, err := that.client.LRange(ctx, chatKeyPrefix+gameID, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	messages := make([]entity.Message, 0, len(raw))
	for _, item := range raw {
		var message entity.Message
		if err = json.Unmarshal([]byte(item), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, nil
}
