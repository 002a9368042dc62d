// services/scheduler.go
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"degen-survivor-backend/models"

	"github.com/gagliardetto/solana-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fixed parameters every scheduled game is created with.
const (
	defaultEntryFee    = 10000
	defaultMaxPlayers  = 50
	defaultTotalRounds = 5

	gameStartLead = 30 * time.Minute
	roundDuration = 60 * time.Second

	// Pre-window the monitor queries ahead of each start; combined with the
	// one-minute poll this bounds activation latency to under a minute past
	// the scheduled start without per-game timers.
	monitorWindow = 5 * time.Minute
)

// GameScheduler creates games on a fixed calendar and advances their
// lifecycle on wall-clock deadlines.
type GameScheduler struct {
	DB     *gorm.DB
	Chain  *ChainClient
	Oracle *OracleService

	sched gocron.Scheduler
}

func NewGameScheduler(db *gorm.DB, chain *ChainClient, oracle *OracleService) *GameScheduler {
	return &GameScheduler{DB: db, Chain: chain, Oracle: oracle}
}

// Start registers the creation cron (10:00 and 20:00 daily), the one-minute
// monitor, and the oracle tick, then starts the scheduler.
func (s *GameScheduler) Start() error {
	log.Println("⏰ Starting game scheduler...")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.CronJob("0 10,20 * * *", false),
		gocron.NewTask(func() {
			log.Println("🎮 Cron triggered - Creating game...")
			if err := s.CreateGame(context.Background()); err != nil {
				log.Printf("❌ Error creating game: %v", err)
			}
		}),
	); err != nil {
		return fmt.Errorf("register creation job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.MonitorGames(); err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
			}
		}),
	); err != nil {
		return fmt.Errorf("register monitor job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(15*time.Second),
		gocron.NewTask(func() {
			s.RunOracleTick(context.Background())
		}),
	); err != nil {
		return fmt.Errorf("register oracle job: %w", err)
	}

	sched.Start()
	s.sched = sched

	log.Println("✅ Scheduler started (10 AM, 8 PM daily)")
	return nil
}

// Shutdown stops the timer jobs. In-flight job bodies are not drained.
func (s *GameScheduler) Shutdown() {
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
}

// CreateGame submits the on-chain create-game transaction and, only after
// successful submission, inserts the local Game row. A submission failure
// leaves no local record; the two writes are not transactional across
// systems.
func (s *GameScheduler) CreateGame(ctx context.Context) error {
	gameID := newGameID()
	startTime := time.Now().Add(gameStartLead)

	log.Printf("Creating game %s for %s", gameID, startTime.Format(time.RFC3339))

	if s.Chain != nil && IsConfigured(s.Chain.Programs.Game) {
		instr, err := s.Chain.BuildCreateGameInstruction(gameID)
		if err != nil {
			return fmt.Errorf("build create-game instruction: %w", err)
		}
		sig, err := s.Chain.SendTransaction(ctx, []solana.Instruction{instr})
		if err != nil {
			return fmt.Errorf("submit create-game transaction: %w", err)
		}
		log.Printf("✅ Game %s created! TX: %s", gameID, sig)
	} else {
		log.Println("⚠️  Game program not configured, skipping on-chain game creation")
	}

	game := models.Game{
		ID:          uuid.NewString(),
		GameID:      gameID,
		GameType:    models.GameTypeBTCOnly,
		Status:      models.GameStatusPending,
		StartTime:   startTime,
		EntryFee:    defaultEntryFee,
		MaxPlayers:  defaultMaxPlayers,
		TotalRounds: defaultTotalRounds,
	}
	if err := s.DB.Create(&game).Error; err != nil {
		return fmt.Errorf("store game %s: %w", gameID, err)
	}

	return nil
}

// newGameID builds a time-derived id with a random suffix. Collisions are
// negligibly likely, not formally excluded; the unique index on game_id is
// the backstop.
func newGameID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("GAME_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// MonitorGames activates pending games whose scheduled start has elapsed.
func (s *GameScheduler) MonitorGames() error {
	now := time.Now()

	var pending []models.Game
	if err := s.DB.
		Where("status = ? AND start_time <= ?", models.GameStatusPending, now.Add(monitorWindow)).
		Find(&pending).Error; err != nil {
		return err
	}

	for _, game := range pending {
		if game.StartTime.After(now) {
			continue
		}
		if err := s.startGame(game); err != nil {
			log.Printf("Error starting game %s: %v", game.GameID, err)
		}
	}

	return nil
}

// startGame flips PENDING to ACTIVE and creates round 1. No on-chain
// transaction accompanies this transition.
func (s *GameScheduler) startGame(game models.Game) error {
	log.Printf("🚀 Starting game %s", game.GameID)

	now := time.Now()
	if err := s.DB.Model(&models.Game{}).
		Where("id = ? AND status = ?", game.ID, models.GameStatusPending).
		Updates(map[string]interface{}{
			"status":            models.GameStatusActive,
			"actual_start_time": now,
			"current_round":     1,
		}).Error; err != nil {
		return fmt.Errorf("activate game: %w", err)
	}

	round := models.Round{
		ID:          uuid.NewString(),
		GameID:      game.ID,
		RoundNumber: 1,
		RoundType:   models.RoundTypePriceDirection,
		StartTime:   now,
		EndTime:     now.Add(roundDuration),
	}
	if err := s.DB.Create(&round).Error; err != nil {
		return fmt.Errorf("create round 1: %w", err)
	}

	log.Printf("✅ Game %s started!", game.GameID)
	return nil
}

// RunOracleTick drives the round oracle at round boundaries: capture the
// start price once a round is underway, then the end price and the outcome
// once its deadline passes. Errors are logged and retried on the next tick.
func (s *GameScheduler) RunOracleTick(ctx context.Context) {
	if s.Oracle == nil {
		return
	}
	now := time.Now()

	var active []models.Game
	if err := s.DB.
		Where("status = ? AND current_round > 0", models.GameStatusActive).
		Find(&active).Error; err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for _, game := range active {
		var rnd models.Round
		if err := s.DB.Where("game_id = ? AND round_number = ?", game.ID, game.CurrentRound).First(&rnd).Error; err != nil {
			continue
		}

		asset := AssetForGameType(game.GameType)

		if !rnd.StartTime.After(now) && startPriceMissing(rnd, asset) {
			if _, err := s.Oracle.FetchStartPrice(ctx, game.GameID, rnd.RoundNumber, asset); err != nil {
				log.Printf("Error fetching start price: %v", err)
				continue
			}
		}

		if rnd.EndTime.After(now) {
			continue
		}

		if endPriceMissing(rnd, asset) {
			if _, err := s.Oracle.FetchEndPrice(ctx, game.GameID, rnd.RoundNumber, asset); err != nil {
				log.Printf("Error fetching end price: %v", err)
				continue
			}
		}

		if rnd.CorrectAnswer == nil {
			if _, err := s.Oracle.DetermineResult(game.GameID, rnd.RoundNumber); err != nil {
				log.Printf("Error determining result: %v", err)
			}
		}
	}
}

func startPriceMissing(rnd models.Round, asset string) bool {
	if asset == models.AssetSOL {
		return rnd.StartPriceSol == nil
	}
	return rnd.StartPriceBtc == nil
}

func endPriceMissing(rnd models.Round, asset string) bool {
	if asset == models.AssetSOL {
		return rnd.EndPriceSol == nil
	}
	return rnd.EndPriceBtc == nil
}
