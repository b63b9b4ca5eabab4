package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// UpsertInput holds an uploaded document.
type UpsertInput struct {
	TenantID *uuid.UUID
	Filename string
	Data     []byte
	MIME     string
}

// UpsertResult is the version that now holds the uploaded bytes. Created is
// false when the bytes matched the latest version and nothing was written.
type UpsertResult struct {
	Artifact domain.Artifact
	Version  domain.ArtifactVersion
	Created  bool
}

// UpsertArtifactAndVersion records data as the next version of the artifact
// named by the normalized filename. Identical bytes never produce a new version.
func (s *Service) UpsertArtifactAndVersion(ctx context.Context, actor domain.Principal, input UpsertInput) (UpsertResult, error) {
	tenantID, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionArtifactWrite, input.TenantID)
	if err != nil {
		return UpsertResult{}, err
	}

	key := domain.NormalizeFilename(input.Filename)
	if key == "" {
		return UpsertResult{}, domain.NewValidationError("filename", "required")
	}
	displayName := baseName(input.Filename)
	digest := objectstore.Digest(input.Data)

	var (
		res     UpsertResult
		put     objectstore.PutResult
		written bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		a, err := s.artifacts.LockOrCreate(ctx, domain.Artifact{
			ID:          uuid.New(),
			TenantID:    tenantID,
			LogicalKey:  key,
			DisplayName: displayName,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("lock artifact: %w", err)
		}
		res.Artifact = a

		next := 1
		latest, err := s.artifacts.LatestVersion(ctx, tenantID, a.ID)
		switch {
		case err == nil:
			if latest.SHA256 == digest {
				res.Version = latest
				return s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditArtifactVersionDedup, map[string]any{
					"artifact_id": a.ID.String(),
					"version_id":  latest.ID.String(),
					"version_int": latest.VersionInt,
					"sha256":      digest,
				}))
			}
			next = latest.VersionInt + 1
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("latest version: %w", err)
		}

		put, err = s.store.Put(ctx, input.Data)
		if err != nil {
			return err
		}
		written = true

		v, err := s.artifacts.CreateVersion(ctx, domain.ArtifactVersion{
			ID:               uuid.New(),
			TenantID:         tenantID,
			ArtifactID:       a.ID,
			VersionInt:       next,
			OriginalFilename: displayName,
			SHA256:           put.Digest,
			SizeBytes:        put.Size,
			MIME:             input.MIME,
			ObjectRelPath:    put.RelPath,
			UploadedBy:       actor.ActorID(),
			CreatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		res.Version, res.Created = v, true

		return s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditArtifactVersionCreate, map[string]any{
			"artifact_id": a.ID.String(),
			"version_id":  v.ID.String(),
			"version_int": v.VersionInt,
			"sha256":      v.SHA256,
			"filename":    v.OriginalFilename,
		}))
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			s.log.ErrorContext(ctx, "store artifact", slog.String("error", err.Error()))
		}
		return UpsertResult{}, fmt.Errorf("vault.UpsertArtifactAndVersion: %w", err)
	}

	if written {
		s.metrics.ObservePut(put.Created, put.Size)
	}
	s.metrics.ObserveVersion(res.Created)
	s.log.InfoContext(ctx, "artifact version resolved",
		slog.String("tenant_id", tenantID.String()),
		slog.String("artifact_id", res.Artifact.ID.String()),
		slog.Int("version_int", res.Version.VersionInt),
		slog.Bool("created", res.Created),
	)
	return res, nil
}

// ListVersions returns the stored versions of one artifact, oldest first.
func (s *Service) ListVersions(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, artifactID uuid.UUID) ([]domain.ArtifactVersion, error) {
	scope, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionDataRead, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.artifacts.GetByID(ctx, scope, artifactID); err != nil {
		return nil, fmt.Errorf("vault.ListVersions: %w", err)
	}
	versions, err := s.artifacts.ListVersions(ctx, &scope, &artifactID)
	if err != nil {
		return nil, fmt.Errorf("vault.ListVersions: %w", err)
	}
	return versions, nil
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	return strings.Join(strings.Fields(name), " ")
}
