package elasticsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const esPort = "9200/tcp"

func startElasticSearchContainer(
	ctx context.Context,
	logger *zap.Logger,
) (
	host string,
	port int,
	stopContainer func(),
	err error,
) {
	childCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "docker.elastic.co/elasticsearch/elasticsearch:8.10.2",
		ExposedPorts: []string{esPort},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/").WithPort(esPort).WithStartupTimeout(3 * time.Minute),
	}

	esContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to start container: %w", err)
	}

	stopContainer = func() {
		esContainer.Terminate(context.Background())
	}

	host, err = esContainer.Host(childCtx)
	if err != nil {
		stopContainer()
		return "", 0, nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mappedPort, err := esContainer.MappedPort(childCtx, esPort)
	if err != nil {
		stopContainer()
		return "", 0, nil, fmt.Errorf("failed to get container port: %w", err)
	}

	logger.Info(
		"Elasticsearch container started",
		zap.String("host", host),
		zap.Int("port", mappedPort.Int()),
	)
	return host, mappedPort.Int(), stopContainer, nil
}
