// services/query.go
package services

import (
	"errors"
	"strconv"

	"degen-survivor-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// QueryService serves read-only views over the projection. The ledger stays
// the source of truth for funds; these routes only expose queryable history.
type QueryService struct {
	DB *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{DB: db}
}

// GetGames lists recent games, newest first.
func (s *QueryService) GetGames(c *fiber.Ctx) error {
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var games []models.Game
	if err := s.DB.Order("start_time DESC").Limit(limit).Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "query failed"})
	}

	return c.JSON(games)
}

// GetGameByID returns one game by its external id, with rounds and players.
func (s *QueryService) GetGameByID(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	var game models.Game
	err := s.DB.
		Preload("Rounds").
		Preload("Players").
		Where("game_id = ?", gameID).
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "query failed"})
	}

	return c.JSON(game)
}

// GetBalance returns the running balance for a wallet address.
func (s *QueryService) GetBalance(c *fiber.Ctx) error {
	wallet := c.Params("wallet")

	var user models.User
	err := s.DB.Preload("Balance").Where("wallet_address = ?", wallet).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "query failed"})
	}

	var degenBalance, totalDeposits uint64
	if user.Balance != nil {
		degenBalance = user.Balance.DegenBalance
		totalDeposits = user.Balance.TotalDeposits
	}

	return c.JSON(fiber.Map{
		"wallet_address": user.WalletAddress,
		"degen_balance":  degenBalance,
		"total_deposits": totalDeposits,
	})
}
