package client

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	"github.com/mobiledna/datakit/internal/errdefs"
)

func (c *StoreClientImpl) CreateSnapshot(
	ctx context.Context,
	repository string,
	snapshot string,
	indices []string,
) error {
	body, err := json.Marshal(map[string]interface{}{
		"indices":              strings.Join(indices, ","),
		"include_global_state": false,
	})
	if err != nil {
		return errdefs.Wrap(errdefs.ErrQuery, err, "failed to marshal snapshot request")
	}

	res, err := c.es.Snapshot.Create(
		repository,
		snapshot,
		c.es.Snapshot.Create.WithContext(ctx),
		c.es.Snapshot.Create.WithBody(strings.NewReader(string(body))),
		c.es.Snapshot.Create.WithWaitForCompletion(true),
	)
	if err != nil {
		return errdefs.Wrapf(errdefs.ErrQuery, err, "failed to create snapshot %s/%s", repository, snapshot)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errdefs.Wrapf(errdefs.ErrQuery, nil, "snapshot creation error: %s", res.String())
	}
	return nil
}

func (c *StoreClientImpl) RestoreSnapshot(
	ctx context.Context,
	repository string,
	snapshot string,
	indices []string,
) error {
	body, err := json.Marshal(map[string]interface{}{
		"indices":              strings.Join(indices, ","),
		"include_global_state": false,
	})
	if err != nil {
		return errdefs.Wrap(errdefs.ErrQuery, err, "failed to marshal restore request")
	}

	res, err := c.es.Snapshot.Restore(
		repository,
		snapshot,
		c.es.Snapshot.Restore.WithContext(ctx),
		c.es.Snapshot.Restore.WithBody(strings.NewReader(string(body))),
		c.es.Snapshot.Restore.WithWaitForCompletion(true),
	)
	if err != nil {
		return errdefs.Wrapf(errdefs.ErrQuery, err, "failed to restore snapshot %s/%s", repository, snapshot)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errdefs.Wrapf(errdefs.ErrQuery, nil, "snapshot restore error: %s", res.String())
	}
	return nil
}

func (c *StoreClientImpl) SnapshotStatus(
	ctx context.Context,
	repository string,
	snapshot string,
) (*model.SnapshotInfo, error) {
	res, err := c.es.Snapshot.Get(
		repository,
		[]string{snapshot},
		c.es.Snapshot.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, errdefs.Wrapf(errdefs.ErrQuery, err, "failed to get snapshot %s/%s", repository, snapshot)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errdefs.Wrapf(errdefs.ErrQuery, nil, "snapshot status error: %s", res.String())
	}

	var snapshotResponse model.SnapshotResponse
	if err := json.NewDecoder(res.Body).Decode(&snapshotResponse); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrQuery, err, "failed to decode snapshot response")
	}
	if len(snapshotResponse.Snapshots) == 0 {
		return nil, errdefs.Wrapf(errdefs.ErrQuery, nil, "snapshot %s/%s not found", repository, snapshot)
	}
	return &snapshotResponse.Snapshots[0], nil
}
