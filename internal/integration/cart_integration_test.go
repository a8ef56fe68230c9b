//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/GitwithRaj/talktocart/internal/cart"
	"github.com/GitwithRaj/talktocart/internal/catalog"
	"github.com/GitwithRaj/talktocart/internal/clients"
	"github.com/GitwithRaj/talktocart/internal/contracts"
	"github.com/GitwithRaj/talktocart/internal/db"
	"github.com/GitwithRaj/talktocart/internal/events"
	httpapi "github.com/GitwithRaj/talktocart/internal/http"
	"github.com/GitwithRaj/talktocart/internal/session"
)

func TestCartIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	pgC, dbURL := startPostgres(ctx, t)
	defer terminateContainer(t, pgC)

	rabbitC, rabbitURL := startRabbitMQ(ctx, t)
	defer terminateContainer(t, rabbitC)

	logger := zaptest.NewLogger(t)
	require.NoError(t, db.RunMigrations(dbURL, logger))

	interpreter := stubInterpreter(t, contracts.ParseResponse{
		Add:    cart.Intents{{Label: "Shirt", Quantity: 7}, {Label: "hat", Quantity: "1"}},
		Remove: cart.Intents{{Label: "jacket", Quantity: 1}},
	})

	app := startCartService(ctx, t, dbURL, rabbitURL, interpreter.URL)
	defer app.stop()

	obs := dialAMQP(ctx, t, rabbitURL)
	defer obs.Close()
	cartQueue := bindQueue(t, obs, events.CartUpdatedRoutingKey)
	invoiceQueue := bindQueue(t, obs, events.InvoiceGeneratedRoutingKey)

	client := clients.NewCartClient(clients.NewClient("cart-service", app.baseURL, &http.Client{Timeout: 10 * time.Second}))

	resp, err := client.Command(ctx, "user-1", "add seven shirts and a hat, remove a jacket")
	require.NoError(t, err)
	require.Equal(t, "cart", resp.Kind)
	require.Equal(t, []cart.Line{{Item: "shirt", Quantity: 5}, {Item: "hat", Quantity: 1}}, resp.Cart.Lines())
	require.Len(t, resp.Advisories, 2)

	var updated contracts.EventEnvelope[contracts.CartUpdatedPayload]
	waitForMessage(ctx, t, obs, cartQueue, &updated)
	require.Equal(t, contracts.CartUpdatedEventName, updated.EventName)
	require.Equal(t, "user-1", updated.PartitionKey)
	require.Equal(t, int64(1), updated.Sequence)
	require.Equal(t, contracts.SourceCommand, updated.Payload.Source)
	require.Len(t, updated.Payload.Advisories, 2)

	// a fresh repository sees the persisted cart
	pool, err := db.NewPool(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()
	stored, err := cart.NewPostgresRepository(pool).GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, resp.Cart.Lines(), stored.Lines())

	_, err = client.Adjust(ctx, "user-1", "hat", "remove")
	require.NoError(t, err)
	waitForMessage(ctx, t, obs, cartQueue, &updated)
	require.Equal(t, int64(2), updated.Sequence)
	require.Equal(t, contracts.SourceManual, updated.Payload.Source)

	doc, err := client.Invoice(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"SHIRT", "5", "$20.00", "$100.00"}}, doc.Rows)

	var generated contracts.EventEnvelope[contracts.InvoiceGeneratedPayload]
	waitForMessage(ctx, t, obs, invoiceQueue, &generated)
	require.Equal(t, doc.Number, generated.Payload.InvoiceNumber)
	require.InDelta(t, 118.0, generated.Payload.GrandTotal, 1e-9)

	_, err = client.Reset(ctx, "user-1")
	require.NoError(t, err)
	_, err = client.Invoice(ctx, "user-1")
	var statusErr *clients.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
}

type cartApp struct {
	baseURL string
	stop    func()
}

func startCartService(ctx context.Context, t *testing.T, dbURL, rabbitURL, interpreterURL string) *cartApp {
	t.Helper()

	logger := zaptest.NewLogger(t)

	pool, err := db.NewPool(ctx, dbURL)
	require.NoError(t, err)

	conn := dialAMQP(ctx, t, rabbitURL)
	pub, err := events.NewPublisher(conn, events.NewSequenceRepository(pool), events.PublisherOptions{})
	require.NoError(t, err)

	cat := catalog.Default()
	svc := session.NewService(session.Deps{
		Interpreter: clients.NewInterpreterClient(clients.NewClient("interpreter", interpreterURL, nil)),
		Repo:        cart.NewPostgresRepository(pool),
		Catalog:     cat,
		Events:      pub,
		Logger:      logger,
	})
	router := httpapi.NewRouter(httpapi.NewHandler(svc, cat, httpapi.HandlerOptions{Logger: logger}), httpapi.RouterOptions{Logger: logger})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return &cartApp{
		baseURL: fmt.Sprintf("http://%s", ln.Addr().String()),
		stop: func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
			_ = pub.Close()
			_ = conn.Close()
			pool.Close()

			select {
			case err := <-errCh:
				t.Logf("server error: %v", err)
			default:
			}
		},
	}
}

func stubInterpreter(t *testing.T, resp contracts.ParseResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startPostgres(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "talktocart"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return container, fmt.Sprintf("postgres://postgres:postgres@%s:%s/talktocart?sslmode=disable", host, mappedPort.Port())
}

func startRabbitMQ(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, mappedPort.Port())
}

func terminateContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Terminate(terminateCtx))
}

func dialAMQP(ctx context.Context, t *testing.T, url string) *amqp.Connection {
	t.Helper()
	conn, err := events.Dial(ctx, url, zaptest.NewLogger(t))
	require.NoError(t, err)
	return conn
}

// bindQueue declares an exclusive queue bound to routingKey on the events
// exchange and returns its name.
func bindQueue(t *testing.T, conn *amqp.Connection, routingKey string) string {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.ExchangeDeclare(events.EventsExchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, false, false, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, events.EventsExchange, false, nil))
	return q.Name
}

func waitForMessage[T any](ctx context.Context, t *testing.T, conn *amqp.Connection, queue string, dest *T) {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	backoff := 50 * time.Millisecond
	for {
		select {
		case <-pollCtx.Done():
			t.Fatalf("timed out waiting for message on %s: %v", queue, pollCtx.Err())
		default:
		}

		msg, ok, getErr := ch.Get(queue, true)
		require.NoError(t, getErr)
		if ok {
			require.NoError(t, json.Unmarshal(msg.Body, dest))
			return
		}

		time.Sleep(backoff)
		if backoff < time.Second {
			backoff = min(backoff*2, time.Second)
		}
	}
}
