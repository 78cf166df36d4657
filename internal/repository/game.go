package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

const (
	gameKeyPrefix = "game:"
	openGamesKey  = "games:open"
)

// saveGameScript writes the game only when it is newer than the stored copy,
// so saves finishing out of order never roll a game back.
var saveGameScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local stored = cjson.decode(current)
	if stored.version and tonumber(stored.version) >= tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
if ARGV[3] == '1' then
	redis.call('SADD', KEYS[2], ARGV[4])
else
	redis.call('SREM', KEYS[2], ARGV[4])
end
return 1
`)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	OpenIDs(ctx context.Context) ([]string, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	open := "0"
	if game.IsOpen() {
		open = "1"
	}

	keys := []string{gameKeyPrefix + game.ID, openGamesKey}
	if err = saveGameScript.Run(ctx, that.client, keys, gameJSON, game.Version, open, game.ID).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// OpenIDs lists stored games that were open to new players when last saved.
func (that *dbGame) OpenIDs(ctx context.Context) ([]string, error) {
	ids, err := that.client.SMembers(ctx, openGamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list open games: %w", err)
	}

	return ids, nil
}
