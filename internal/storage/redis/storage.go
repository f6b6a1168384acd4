package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, gameKey(game.ID), data, s.cfg.GameTTL).Err()
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) CreateGameSetup(ctx context.Context, game *model.Game, players []*model.Player, rules []*model.Rule) error {
	// Claim the credential and rule-name index keys first with SETNX.
	// The game ID is freshly generated so no other transaction can be
	// writing this game's entities; the index claims are the defense
	// against a racing setup reusing the same usernames or names.
	var claimed []string

	rollback := func() {
		if len(claimed) > 0 {
			s.client.Del(context.WithoutCancel(ctx), claimed...)
		}
	}

	for _, p := range players {
		key := usernameIndexKey(p.GameID, p.Username)
		ok, err := s.client.SetNX(ctx, key, string(p.ID), s.cfg.GameTTL).Result()
		if err != nil {
			rollback()
			return err
		}
		if !ok {
			rollback()
			return model.ErrDuplicatePlayerCredentials
		}
		claimed = append(claimed, key)
	}

	for _, r := range rules {
		key := ruleNameIndexKey(r.GameID, r.Name)
		ok, err := s.client.SetNX(ctx, key, string(r.ID), s.cfg.GameTTL).Result()
		if err != nil {
			rollback()
			return err
		}
		if !ok {
			rollback()
			return model.ErrDuplicateRuleName
		}
		claimed = append(claimed, key)
	}

	// All constraints hold; write every entity in one transaction
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		gameData, err := json.Marshal(game)
		if err != nil {
			return err
		}
		pipe.Set(ctx, gameKey(game.ID), gameData, s.cfg.GameTTL)

		playersIdx := playersForGameIndexKey(game.ID)
		for _, p := range players {
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			pipe.Set(ctx, playerKey(p.ID), data, s.cfg.GameTTL)
			pipe.SAdd(ctx, playersIdx, playerKey(p.ID))
		}

		rulesIdx := rulesForGameIndexKey(game.ID)
		for _, r := range rules {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			pipe.Set(ctx, ruleKey(r.ID), data, s.cfg.GameTTL)
			pipe.SAdd(ctx, rulesIdx, ruleKey(r.ID))
		}

		if s.cfg.GameTTL > 0 {
			pipe.Expire(ctx, playersIdx, s.cfg.GameTTL)
			pipe.Expire(ctx, rulesIdx, s.cfg.GameTTL)
		}
		return nil
	})
	if err != nil {
		rollback()
		return err
	}
	return nil
}

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, gameID model.GameID, username string) (*model.Player, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(gameID, username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(playerIDStr))
}

func (s *Storage) GetPlayersForGame(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	keys, err := s.client.SMembers(ctx, playersForGameIndexKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue
		}
		players = append(players, &player)
	}

	sort.Slice(players, func(i, j int) bool {
		return players[i].Seq < players[j].Seq
	})
	return players, nil
}

// Rule operations

func (s *Storage) CreateRule(ctx context.Context, rule *model.Rule) error {
	nameKey := ruleNameIndexKey(rule.GameID, rule.Name)
	ok, err := s.client.SetNX(ctx, nameKey, string(rule.ID), s.cfg.GameTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrDuplicateRuleName
	}

	data, err := json.Marshal(rule)
	if err != nil {
		s.client.Del(context.WithoutCancel(ctx), nameKey)
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ruleKey(rule.ID), data, s.cfg.GameTTL)
	pipe.SAdd(ctx, rulesForGameIndexKey(rule.GameID), ruleKey(rule.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.client.Del(context.WithoutCancel(ctx), nameKey)
		return err
	}
	return nil
}

// updateRuleScript replaces a rule and swaps the name index in one
// atomic script, refusing when the rule's assignment key exists so a
// claim landing first always wins over the edit.
var updateRuleScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return -1
end
if redis.call('EXISTS', KEYS[2]) == 0 then
  return -2
end
local nameChanged = ARGV[3] == '1'
if nameChanged and redis.call('EXISTS', KEYS[3]) == 1 then
  return -3
end
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call('SET', KEYS[2], ARGV[1], 'PX', ttl)
else
  redis.call('SET', KEYS[2], ARGV[1])
end
if nameChanged then
  redis.call('DEL', KEYS[4])
  if ttl > 0 then
    redis.call('SET', KEYS[3], ARGV[2], 'PX', ttl)
  else
    redis.call('SET', KEYS[3], ARGV[2])
  end
end
return 1
`)

func (s *Storage) UpdateRule(ctx context.Context, rule *model.Rule, oldName string) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return err
	}

	nameChanged := "0"
	if rule.Name != oldName {
		nameChanged = "1"
	}

	keys := []string{
		assignmentKey(rule.ID),
		ruleKey(rule.ID),
		ruleNameIndexKey(rule.GameID, rule.Name),
		ruleNameIndexKey(rule.GameID, oldName),
	}
	res, err := updateRuleScript.Run(ctx, s.client, keys,
		data,
		string(rule.ID),
		nameChanged,
		s.cfg.GameTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return err
	}

	switch res {
	case -1:
		return model.ErrRuleAlreadyAssigned
	case -2:
		return model.ErrRuleNotFound
	case -3:
		return model.ErrDuplicateRuleName
	}
	return nil
}

// deleteRuleScript removes a rule, its name index entry and its
// game-index membership, with the same assignment conflict check as
// updateRuleScript.
var deleteRuleScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return -1
end
if redis.call('EXISTS', KEYS[2]) == 0 then
  return -2
end
redis.call('DEL', KEYS[2])
redis.call('DEL', KEYS[3])
redis.call('SREM', KEYS[4], KEYS[2])
return 1
`)

func (s *Storage) DeleteRule(ctx context.Context, id model.RuleID) error {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}

	keys := []string{
		assignmentKey(id),
		ruleKey(id),
		ruleNameIndexKey(rule.GameID, rule.Name),
		rulesForGameIndexKey(rule.GameID),
	}
	res, err := deleteRuleScript.Run(ctx, s.client, keys).Int64()
	if err != nil {
		return err
	}

	switch res {
	case -1:
		return model.ErrRuleAlreadyAssigned
	case -2:
		return model.ErrRuleNotFound
	}
	return nil
}

func (s *Storage) GetRule(ctx context.Context, id model.RuleID) (*model.Rule, error) {
	data, err := s.client.Get(ctx, ruleKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRuleNotFound
		}
		return nil, err
	}

	var rule model.Rule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Storage) GetRulesForGame(ctx context.Context, gameID model.GameID) ([]*model.Rule, error) {
	keys, err := s.client.SMembers(ctx, rulesForGameIndexKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Rule{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rules := make([]*model.Rule, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var rule model.Rule
		if err := json.Unmarshal([]byte(val.(string)), &rule); err != nil {
			continue
		}
		rules = append(rules, &rule)
	}

	sort.Slice(rules, func(i, j int) bool {
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
	return rules, nil
}

// Assignment operations

// insertAssignmentScript records an assignment, applies its delta to
// the player's score and adds the game-index member in one atomic
// script. The EXISTS check on the assignment key is the first-claim-
// wins constraint; the in-script read-modify-write of the player JSON
// keeps concurrent claims by the same player from losing deltas.
var insertAssignmentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local data = redis.call('GET', KEYS[2])
if not data then
  return -1
end
local player = cjson.decode(data)
player.Score = player.Score + tonumber(ARGV[2])
player.UpdatedAt = ARGV[3]
local encoded = cjson.encode(player)
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
  redis.call('SET', KEYS[2], encoded, 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
  redis.call('SET', KEYS[2], encoded)
end
redis.call('SADD', KEYS[3], KEYS[1])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[3], ttl)
end
return {1, encoded}
`)

func (s *Storage) InsertAssignment(ctx context.Context, assignment *model.Assignment) (*model.Player, bool, error) {
	data, err := json.Marshal(assignment)
	if err != nil {
		return nil, false, err
	}

	keys := []string{
		assignmentKey(assignment.RuleID),
		playerKey(assignment.PlayerID),
		assignmentsForGameIndexKey(assignment.GameID),
	}
	res, err := insertAssignmentScript.Run(ctx, s.client, keys,
		data,
		assignment.DeltaApplied,
		assignment.AssignedAt.Format(time.RFC3339Nano),
		s.cfg.GameTTL.Milliseconds(),
	).Result()
	if err != nil {
		return nil, false, err
	}

	switch v := res.(type) {
	case int64:
		if v == -1 {
			return nil, false, model.ErrPlayerNotFound
		}
		return nil, false, nil
	case []interface{}:
		var player model.Player
		if err := json.Unmarshal([]byte(v[1].(string)), &player); err != nil {
			return nil, false, err
		}
		return &player, true, nil
	default:
		return nil, false, errors.New("unexpected script reply")
	}
}

func (s *Storage) GetAssignmentForRule(ctx context.Context, ruleID model.RuleID) (*model.Assignment, error) {
	data, err := s.client.Get(ctx, assignmentKey(ruleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAssignmentNotFound
		}
		return nil, err
	}

	var assignment model.Assignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (s *Storage) GetAssignmentsForGame(ctx context.Context, gameID model.GameID) ([]*model.Assignment, error) {
	keys, err := s.client.SMembers(ctx, assignmentsForGameIndexKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Assignment{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	assignments := make([]*model.Assignment, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var assignment model.Assignment
		if err := json.Unmarshal([]byte(val.(string)), &assignment); err != nil {
			continue
		}
		assignments = append(assignments, &assignment)
	}

	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedAt.Before(assignments[j].AssignedAt)
	})
	return assignments, nil
}
