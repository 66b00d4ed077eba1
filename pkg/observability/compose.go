package observability

import (
	"context"

	"github.com/aretw0/simevents/pkg/domain"
)

// Compose merges hook sets. Each callback fans out to the non-nil callbacks of every set,
// in argument order.
func Compose(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var onInit, onTerm []func(context.Context, *domain.LifecycleEvent)
	var onRecord []func(context.Context, *domain.DispatchEvent)
	var onStep []func(context.Context, *domain.StepEvent)
	for _, s := range sets {
		if s.OnInitialize != nil {
			onInit = append(onInit, s.OnInitialize)
		}
		if s.OnRecord != nil {
			onRecord = append(onRecord, s.OnRecord)
		}
		if s.OnStep != nil {
			onStep = append(onStep, s.OnStep)
		}
		if s.OnTerminate != nil {
			onTerm = append(onTerm, s.OnTerminate)
		}
	}

	if len(onInit) > 0 {
		out.OnInitialize = func(ctx context.Context, e *domain.LifecycleEvent) {
			for _, fn := range onInit {
				fn(ctx, e)
			}
		}
	}
	if len(onRecord) > 0 {
		out.OnRecord = func(ctx context.Context, e *domain.DispatchEvent) {
			for _, fn := range onRecord {
				fn(ctx, e)
			}
		}
	}
	if len(onStep) > 0 {
		out.OnStep = func(ctx context.Context, e *domain.StepEvent) {
			for _, fn := range onStep {
				fn(ctx, e)
			}
		}
	}
	if len(onTerm) > 0 {
		out.OnTerminate = func(ctx context.Context, e *domain.LifecycleEvent) {
			for _, fn := range onTerm {
				fn(ctx, e)
			}
		}
	}
	return out
}
