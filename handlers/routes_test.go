// handlers/routes_test.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"degen-survivor-backend/models"
	"degen-survivor-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Balance{},
		&models.Game{},
		&models.PlayerGame{},
		&models.Round{},
	))

	app := fiber.New()
	SetupRoutes(app, services.NewQueryService(db))
	return app, db
}

func TestHealthRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestGetGameByID(t *testing.T) {
	app, db := newTestApp(t)

	game := models.Game{
		ID:          uuid.NewString(),
		GameID:      "GAME_123",
		GameType:    models.GameTypeBTCOnly,
		Status:      models.GameStatusPending,
		StartTime:   time.Now().Add(30 * time.Minute),
		EntryFee:    10000,
		MaxPlayers:  50,
		TotalRounds: 5,
	}
	require.NoError(t, db.Create(&game).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/games/GAME_123", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "GAME_123", got.GameID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/games/GAME_MISSING", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetBalance(t *testing.T) {
	app, db := newTestApp(t)

	user := models.User{ID: uuid.NewString(), WalletAddress: "W1"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Balance{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		DegenBalance:  1500,
		TotalDeposits: 1500,
	}).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/W1/balance", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WalletAddress string `json:"wallet_address"`
		DegenBalance  uint64 `json:"degen_balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "W1", body.WalletAddress)
	assert.Equal(t, uint64(1500), body.DegenBalance)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/users/W2/balance", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
