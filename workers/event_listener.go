// workers/event_listener.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"degen-survivor-backend/models"
	"degen-survivor-backend/services"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reconnectDelay = 5 * time.Second

// EventListener keeps the projection in sync with on-chain events: one log
// subscription per configured program, each notification parsed and applied
// through per-(program, kind) handlers.
type EventListener struct {
	db    *gorm.DB
	chain *services.ChainClient
}

func NewEventListener(db *gorm.DB, chain *services.ChainClient) *EventListener {
	return &EventListener{db: db, chain: chain}
}

// Start launches one subscription goroutine per configured program.
// Programs left at the unset sentinel are skipped so partial deployments can
// run without failing.
func (l *EventListener) Start(ctx context.Context) {
	log.Println("🎧 Starting event listener...")

	for name, programID := range l.chain.ProgramSet() {
		if !services.IsConfigured(programID) {
			log.Printf("   ⚠️ Skipping %s: No program ID set in .env", name)
			continue
		}

		log.Printf("   Listening to %s: %s", name, programID.String())
		go l.subscribeLoop(ctx, name, programID)
	}

	log.Println("✅ Event listener started")
}

// subscribeLoop keeps one program's subscription alive, reconnecting with a
// fixed delay whenever the websocket stream drops.
func (l *EventListener) subscribeLoop(ctx context.Context, name string, programID solana.PublicKey) {
	for {
		if err := l.subscribe(ctx, name, programID); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ %s subscription error: %v (reconnecting in %s)", name, err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *EventListener) subscribe(ctx context.Context, name string, programID solana.PublicKey) error {
	client, err := ws.Connect(ctx, l.chain.WSEndpoint())
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(programID, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("subscribe to logs: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return fmt.Errorf("receive notification: %w", err)
		}
		l.HandleNotification(name, got.Value.Signature.String(), got.Value.Err != nil, got.Value.Logs)
	}
}

// HandleNotification processes one log notification. Notifications for failed
// transactions are discarded; everything else is parsed and each event is
// recorded and dispatched. A handler failure never aborts the remaining
// events of the same notification.
func (l *EventListener) HandleNotification(programName, signature string, failed bool, logs []string) {
	if failed {
		log.Printf("⚠️  Transaction failed: %s", signature)
		return
	}

	for i, event := range services.ParseEvents(logs) {
		log.Printf("📢 %s Event: %s", programName, event.Type)

		fresh, err := l.storeEvent(programName, event, signature, i)
		if err != nil {
			log.Printf("Error storing event: %v", err)
			continue
		}
		if !fresh {
			// Duplicate delivery of an already-applied event.
			continue
		}

		if err := l.dispatch(programName, event); err != nil {
			log.Printf("Error handling %s/%s event: %v", programName, event.Type, err)
		}
	}
}

// storeEvent appends the durable "we saw this" record. The unique index on
// (program_id, signature, event_index) turns redelivery into a no-op insert;
// a transaction mentioning several programs is applied once per program.
// fresh=false tells the caller to skip the handler so each observed event is
// applied exactly once per program.
func (l *EventListener) storeEvent(programName string, event services.ChainEvent, signature string, index int) (fresh bool, err error) {
	var refs struct {
		GameID *string `json:"game_id"`
		Player *string `json:"player"`
		User   *string `json:"user"`
	}
	_ = json.Unmarshal(event.Data, &refs)

	userID := refs.Player
	if userID == nil {
		userID = refs.User
	}

	record := models.BlockchainEvent{
		ID:         uuid.NewString(),
		ProgramID:  programName,
		EventType:  event.Type,
		GameID:     refs.GameID,
		UserID:     userID,
		Data:       string(event.Data),
		Slot:       strconv.FormatInt(time.Now().UnixMilli(), 10),
		Signature:  signature,
		EventIndex: index,
		Timestamp:  time.Now(),
	}

	res := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "program_id"}, {Name: "signature"}, {Name: "event_index"}},
		DoNothing: true,
	}).Create(&record)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// dispatch routes one event to its handler. Unrecognized (program, kind)
// pairs are no-ops.
func (l *EventListener) dispatch(programName string, event services.ChainEvent) error {
	switch {
	case programName == services.ProgramVault && event.Type == services.EventDeposit:
		return l.handleDeposit(event.Data)
	case programName == services.ProgramGame && event.Type == services.EventPlayerJoined:
		return l.handlePlayerJoined(event.Data)
	case programName == services.ProgramGame && event.Type == services.EventPredictionSubmitted:
		return l.handlePredictionSubmitted(event.Data)
	}
	return nil
}

func (l *EventListener) handleDeposit(data json.RawMessage) error {
	ev, ok := services.DecodeDeposit(data)
	if !ok {
		return nil
	}

	user, err := l.upsertUser(ev.User)
	if err != nil {
		return err
	}

	balance := models.Balance{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		DegenBalance:  *ev.Amount,
		TotalDeposits: *ev.Amount,
	}
	if err := l.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"degen_balance":  gorm.Expr("balances.degen_balance + ?", *ev.Amount),
			"total_deposits": gorm.Expr("balances.total_deposits + ?", *ev.Amount),
			"updated_at":     time.Now(),
		}),
	}).Create(&balance).Error; err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	log.Printf("💰 User %s deposited %d DEGEN", ev.User, *ev.Amount)
	return nil
}

func (l *EventListener) handlePlayerJoined(data json.RawMessage) error {
	ev, ok := services.DecodePlayerJoined(data)
	if !ok {
		return nil
	}

	user, err := l.upsertUser(ev.Player)
	if err != nil {
		return err
	}

	var game models.Game
	if err := l.db.Where("game_id = ?", ev.GameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Join for a game we never recorded; dropped, not queued.
			return nil
		}
		return fmt.Errorf("load game %s: %w", ev.GameID, err)
	}

	playerGame := models.PlayerGame{
		ID:        uuid.NewString(),
		GameID:    game.ID,
		UserID:    user.ID,
		EntrySlot: *ev.EntrySlot,
	}
	res := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&playerGame)
	if res.Error != nil {
		return fmt.Errorf("create player game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Already joined; don't double-count.
		return nil
	}

	if err := l.db.Model(&models.Game{}).
		Where("id = ?", game.ID).
		Update("total_players", gorm.Expr("total_players + ?", 1)).Error; err != nil {
		return fmt.Errorf("increment total players: %w", err)
	}

	log.Printf("🎮 Player %s joined game %s", ev.Player, ev.GameID)
	return nil
}

func (l *EventListener) handlePredictionSubmitted(data json.RawMessage) error {
	ev, ok := services.DecodePredictionSubmitted(data)
	if !ok {
		return nil
	}

	// Predictions are only accepted from known participants: the user, the
	// game, and the join record must all already exist.
	var user models.User
	if err := l.db.Where("wallet_address = ?", ev.Player).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load user %s: %w", ev.Player, err)
	}

	var game models.Game
	if err := l.db.Where("game_id = ?", ev.GameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load game %s: %w", ev.GameID, err)
	}

	var playerGame models.PlayerGame
	if err := l.db.Where("game_id = ? AND user_id = ?", game.ID, user.ID).First(&playerGame).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load player game: %w", err)
	}

	choice := "null"
	if len(ev.Choice) > 0 {
		choice = string(ev.Choice)
	}
	var responseTime uint32
	if ev.ResponseTime != nil {
		responseTime = *ev.ResponseTime
	}

	prediction := models.Prediction{
		ID:           uuid.NewString(),
		GameID:       game.ID,
		RoundNumber:  int(*ev.Round),
		UserID:       user.ID,
		PlayerGameID: playerGame.ID,
		Choice:       choice,
		ResponseTime: responseTime,
	}
	if err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "round_number"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&prediction).Error; err != nil {
		return fmt.Errorf("create prediction: %w", err)
	}

	log.Printf("🎯 Player %s predicted for round %d", ev.Player, *ev.Round)
	return nil
}

// upsertUser creates the user row on first sight of a wallet and returns the
// surviving row either way.
func (l *EventListener) upsertUser(wallet string) (*models.User, error) {
	user := models.User{ID: uuid.NewString(), WalletAddress: wallet}
	if err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", wallet, err)
	}

	// Reload into a zero value: gorm folds a non-zero primary key left in
	// user by the insert attempt into the query conditions.
	var existing models.User
	if err := l.db.Where("wallet_address = ?", wallet).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("load user %s: %w", wallet, err)
	}
	return &existing, nil
}
