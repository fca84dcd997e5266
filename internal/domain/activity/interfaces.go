package activity

import "context"

// Repository reads stored activity rows.
type Repository interface {
	Get(ctx context.Context, ref Ref) (*Row, error)
	List(ctx context.Context, opts ListOptions) ([]Row, error)
	Count(ctx context.Context, opts ListOptions) (int, error)
}
