//go:build integration

package chatrepo

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/infrastructure/database"
	"rentacar-server/chat-api/internal/infrastructure/database/entities"
	"rentacar-server/chat-api/internal/infrastructure/lock"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

var (
	testDB      *gorm.DB
	testDBError error
)

// TestMain starts PostgreSQL once for the package. When Docker is not
// available the tests skip instead of failing.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "chat",
				"POSTGRES_PASSWORD": "chat",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		testDBError = fmt.Errorf("start postgres container: %w", err)
		os.Exit(m.Run())
	}

	host, _ := container.Host(ctx)
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://chat:chat@%s:%s/chat_test?sslmode=disable", host, port.Port())
	testDB, err = database.Connect(database.Config{DSN: dsn})
	if err != nil {
		testDBError = err
	} else if err := database.AutoMigrate(ctx, testDB, zerolog.Nop()); err != nil {
		testDBError = err
	}

	code := m.Run()

	if testDB != nil {
		_ = database.Close(testDB)
	}
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDBError != nil {
		t.Skipf("postgres unavailable: %v", testDBError)
	}
	require.NoError(t, testDB.Exec("TRUNCATE messages, conversations, users RESTART IDENTITY CASCADE").Error)
	return testDB
}

func TestPostgresConversationLifecycle(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&entities.User{ID: "u-1", Name: "Alice", Email: "alice@example.com"}).Error)

	convRepo := NewConversationRepository(db)
	msgRepo := NewMessageRepository(db)
	convs := conversation.NewService(convRepo, lock.NewKeyedMutex(), zerolog.Nop())
	msgs := message.NewService(msgRepo, 100, zerolog.Nop())

	first, err := convs.GetOrCreateForUser(ctx, "u-1")
	require.NoError(t, err)
	again, err := convs.GetOrCreateForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	m1, err := msgs.Append(ctx, first.ID, "u-1", identity.RoleUser, "  Is the Clio free on Friday?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is the Clio free on Friday?", m1.Content)
	require.NoError(t, convs.Touch(ctx, first.ID))

	m2, err := msgs.Append(ctx, first.ID, "admin-1", identity.RoleAdmin, "Yes it is")
	require.NoError(t, err)
	require.NoError(t, convs.Touch(ctx, first.ID))

	history, err := msgs.ListForConversation(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m1.ID, history[0].ID)
	assert.Equal(t, m2.ID, history[1].ID)

	page, err := msgs.ListPage(ctx, first.ID, m1.ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, m2.ID, page[0].ID)

	summaries, err := convs.ListForAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Alice", summaries[0].UserName)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "Yes it is", *summaries[0].LastMessage)
	assert.Equal(t, int64(1), summaries[0].UserMessageCount)
	assert.False(t, summaries[0].UpdatedAt.Before(m2.CreatedAt))

	closed, err := convs.Close(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusClosed, closed.Status)
	closedAgain, err := convs.Close(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusClosed, closedAgain.Status)

	_, err = convs.Close(ctx, 9999)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestPostgresSummaryWithoutUserRow(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	repo := NewConversationRepository(db)
	conv := &conversation.Conversation{UserID: "ghost", Status: conversation.StatusOpen}
	require.NoError(t, repo.Create(ctx, conv))

	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Empty(t, summaries[0].UserName)
	assert.Nil(t, summaries[0].LastMessage)
}
