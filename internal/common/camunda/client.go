// internal/common/camunda/client.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnstyle-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// ErrNoBrokers is returned when the gateway answers but reports no brokers,
// which means jobs cannot be activated yet.
var ErrNoBrokers = errors.New("gateway reports no brokers")

// Client wraps the Zeebe gRPC client and keeps the timeout used for
// topology probes.
type Client struct {
	client  zbc.Client
	timeout time.Duration
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
}

// ConfigFrom maps the camunda config section onto a ClientConfig.
func ConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: !cfg.TLS,
		ConnectionTimeout:      config.GetDuration(cfg.RequestTimeout),
	}
}

// NewClientWithConfig dials the gateway and requires at least one broker in
// the topology before returning.
func NewClientWithConfig(cc *ClientConfig) (*Client, error) {
	timeout := cc.ConnectionTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cc.GatewayAddress,
		UsePlaintextConnection: cc.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, timeout: timeout}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe gateway at %s: %w", cc.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck requests the topology and fails when no broker is listed.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	topology, err := c.client.NewTopologyCommand().Send(ctx)
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return checkTopology(topology)
}

func checkTopology(topology *pb.TopologyResponse) error {
	if topology == nil || len(topology.GetBrokers()) == 0 {
		return ErrNoBrokers
	}
	return nil
}
