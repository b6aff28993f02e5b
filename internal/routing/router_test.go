package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/mocks"
	"github.com/davidbz/creditmeter/internal/routing"
)

func entry(provider, model string, modality domain.Modality) domain.ModelInfo {
	return domain.ModelInfo{ModelRef: domain.ModelRef{ProviderID: provider, ModelID: model, Modality: modality}}
}

func TestSimpleRouter_Route(t *testing.T) {
	ctx := context.Background()
	catalog := []domain.ModelInfo{
		entry("openai", "gpt-4o", domain.ModalityLanguage),
		entry("azure", "gpt-4o-mini", domain.ModalityLanguage),
		entry("openai", "gpt-4o-mini", domain.ModalityLanguage),
		entry("openai", "gpt-image-1", domain.ModalityImage),
	}

	tests := []struct {
		name     string
		modelID  string
		modality domain.Modality
		want     domain.ModelRef
		wantErr  error
	}{
		{
			name:    "single provider, default modality",
			modelID: "gpt-4o",
			want:    domain.ModelRef{ProviderID: "openai", ModelID: "gpt-4o", Modality: domain.ModalityLanguage},
		},
		{
			name:     "modality narrows the match",
			modelID:  "gpt-image-1",
			modality: domain.ModalityImage,
			want:     domain.ModelRef{ProviderID: "openai", ModelID: "gpt-image-1", Modality: domain.ModalityImage},
		},
		{
			name:    "wrong modality",
			modelID: "gpt-image-1",
			wantErr: domain.ErrModelNotFound,
		},
		{
			name:    "unknown model",
			modelID: "gpt-9",
			wantErr: domain.ErrModelNotFound,
		},
		{
			name:    "several providers",
			modelID: "gpt-4o-mini",
			wantErr: routing.ErrAmbiguousModel,
		},
		{
			name:    "empty model id",
			wantErr: domain.ErrInvalidModelRef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory := mocks.NewMockModelDirectory(t)
			directory.On("List", mock.Anything).Return(catalog, nil).Maybe()

			ref, err := routing.NewRouter(directory).Route(ctx, tt.modelID, tt.modality)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, ref)
		})
	}
}

func TestSimpleRouter_ListFailure(t *testing.T) {
	directory := mocks.NewMockModelDirectory(t)
	directory.On("List", mock.Anything).Return(nil, errors.New("redis down"))

	_, err := routing.NewRouter(directory).Route(context.Background(), "gpt-4o", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis down")
}
