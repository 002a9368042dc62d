// services/oracle.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"degen-survivor-backend/config"
	"degen-survivor-backend/models"

	"github.com/gagliardetto/solana-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OracleService fetches Pyth prices at round boundaries, commits them on-chain
// and into the projection, and evaluates round outcomes.
type OracleService struct {
	DB    *gorm.DB
	Chain *ChainClient

	http    *resty.Client
	btcFeed string
	solFeed string
}

func NewOracleService(db *gorm.DB, chain *ChainClient, cfg *config.Config) *OracleService {
	return &OracleService{
		DB:    db,
		Chain: chain,
		http: resty.New().
			SetBaseURL(cfg.PythAPIURL).
			SetTimeout(10 * time.Second),
		btcFeed: cfg.BTCFeedID,
		solFeed: cfg.SOLFeedID,
	}
}

// pythPriceFeed matches one element of the Hermes latest_price_feeds response.
type pythPriceFeed struct {
	Price struct {
		Price string `json:"price"` // string-encoded integer mantissa
		Expo  int    `json:"expo"`
	} `json:"price"`
}

// FetchPrice returns the current real-valued price for BTC or SOL, decoded
// from the feed's mantissa/exponent pair. Empty or malformed responses are
// errors; there is no cached fallback.
func (o *OracleService) FetchPrice(asset string) (float64, error) {
	var feedID string
	switch asset {
	case models.AssetBTC:
		feedID = o.btcFeed
	case models.AssetSOL:
		feedID = o.solFeed
	default:
		return 0, fmt.Errorf("unknown asset %q", asset)
	}

	resp, err := o.http.R().
		SetQueryParam("ids[]", feedID).
		Get("/api/latest_price_feeds")
	if err != nil {
		return 0, fmt.Errorf("fetch %s price: %w", asset, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("fetch %s price: feed returned status %d", asset, resp.StatusCode())
	}

	var feeds []pythPriceFeed
	if err := json.Unmarshal(resp.Body(), &feeds); err != nil {
		return 0, fmt.Errorf("fetch %s price: decode response: %w", asset, err)
	}
	if len(feeds) == 0 || feeds[0].Price.Price == "" {
		return 0, fmt.Errorf("fetch %s price: unexpected response format from price feed", asset)
	}

	mantissa, err := strconv.ParseFloat(feeds[0].Price.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("fetch %s price: bad mantissa %q: %w", asset, feeds[0].Price.Price, err)
	}

	price := mantissa * math.Pow(10, float64(feeds[0].Price.Expo))
	log.Printf("📊 %s Price: $%.2f", asset, price)

	return price, nil
}

// FetchStartPrice captures the round's opening price: commits it on-chain,
// appends an OraclePrice sample, and fills the round's start price column.
func (o *OracleService) FetchStartPrice(ctx context.Context, gameID string, round int, asset string) (float64, error) {
	return o.fetchAndStore(ctx, gameID, round, asset, models.PriceTypeStart)
}

// FetchEndPrice captures the round's closing price, same persistence path as
// FetchStartPrice.
func (o *OracleService) FetchEndPrice(ctx context.Context, gameID string, round int, asset string) (float64, error) {
	return o.fetchAndStore(ctx, gameID, round, asset, models.PriceTypeEnd)
}

func (o *OracleService) fetchAndStore(ctx context.Context, gameID string, round int, asset, priceType string) (float64, error) {
	log.Printf("📥 Fetching %s price for %s - Round %d", priceType, asset, round)

	price, err := o.FetchPrice(asset)
	if err != nil {
		return 0, err
	}

	// On-chain commit failure must not abort the local writes below; the two
	// records may diverge on transient network failure.
	o.storePriceOnChain(ctx, gameID, round, asset, priceType, price)

	var game models.Game
	if err := o.DB.Where("game_id = ?", gameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return price, nil
		}
		return 0, fmt.Errorf("load game %s: %w", gameID, err)
	}

	sample := models.OraclePrice{
		ID:          uuid.NewString(),
		GameID:      game.ID,
		RoundNumber: round,
		Asset:       asset,
		PriceType:   priceType,
		Price:       price,
		Confidence:  0,
		Slot:        strconv.FormatInt(time.Now().UnixMilli(), 10),
		Timestamp:   time.Now(),
	}
	if err := o.DB.Create(&sample).Error; err != nil {
		return 0, fmt.Errorf("store oracle price: %w", err)
	}

	if err := o.DB.Model(&models.Round{}).
		Where("game_id = ? AND round_number = ?", game.ID, round).
		Update(priceColumn(asset, priceType), price).Error; err != nil {
		return 0, fmt.Errorf("update round price: %w", err)
	}

	log.Printf("✅ %s price stored: $%.2f", priceType, price)
	return price, nil
}

func priceColumn(asset, priceType string) string {
	col := "start_price_"
	if priceType == models.PriceTypeEnd {
		col = "end_price_"
	}
	return col + strings.ToLower(asset)
}

func (o *OracleService) storePriceOnChain(ctx context.Context, gameID string, round int, asset, priceType string, price float64) {
	if o.Chain == nil || !IsConfigured(o.Chain.Programs.Oracle) {
		log.Println("⚠️  Oracle program not configured, skipping on-chain price commit")
		return
	}

	instr, err := o.Chain.BuildStorePriceInstruction(gameID, uint8(round), strings.ToLower(priceType), price)
	if err != nil {
		log.Printf("❌ Error building price instruction: %v", err)
		return
	}

	sig, err := o.Chain.SendTransaction(ctx, []solana.Instruction{instr})
	if err != nil {
		log.Printf("❌ Error storing price on-chain: %v", err)
		return
	}

	log.Printf("✅ Price stored on-chain. TX: %s", sig)
}

// DetermineResult evaluates a round once both price samples exist. It returns
// "" (no result yet, not an error) while either price is missing or zero;
// otherwise UP iff end > start, DOWN for everything else including end ==
// start, and persists the answer with the evaluation time.
func (o *OracleService) DetermineResult(gameID string, round int) (string, error) {
	var game models.Game
	if err := o.DB.Where("game_id = ?", gameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load game %s: %w", gameID, err)
	}

	var rnd models.Round
	if err := o.DB.Where("game_id = ? AND round_number = ?", game.ID, round).First(&rnd).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load round %d of game %s: %w", round, gameID, err)
	}

	var startPrice, endPrice float64
	switch game.GameType {
	case models.GameTypeBTCOnly:
		if rnd.StartPriceBtc != nil {
			startPrice = *rnd.StartPriceBtc
		}
		if rnd.EndPriceBtc != nil {
			endPrice = *rnd.EndPriceBtc
		}
	case models.GameTypeSOLOnly:
		if rnd.StartPriceSol != nil {
			startPrice = *rnd.StartPriceSol
		}
		if rnd.EndPriceSol != nil {
			endPrice = *rnd.EndPriceSol
		}
	}

	if startPrice == 0 || endPrice == 0 {
		return "", nil
	}

	result := models.AnswerDown
	if endPrice > startPrice {
		result = models.AnswerUp
	}

	log.Printf("🎯 Round %d Result: %s (%.2f → %.2f)", round, result, startPrice, endPrice)

	if err := o.DB.Model(&models.Round{}).
		Where("game_id = ? AND round_number = ?", game.ID, round).
		Updates(map[string]interface{}{
			"correct_answer": result,
			"evaluated_at":   time.Now(),
		}).Error; err != nil {
		return "", fmt.Errorf("persist round result: %w", err)
	}

	return result, nil
}

// AssetForGameType picks the price pair a game type is scored on.
func AssetForGameType(gameType string) string {
	if gameType == models.GameTypeSOLOnly {
		return models.AssetSOL
	}
	return models.AssetBTC
}
