package jardl

import (
	"context"

	"github.com/dncore/swi/pkg/types"
)

// simpleBuild is a Build whose info is already complete at listing time —
// FetchInfo makes no HTTP call, unlike purpurBuild and spongeBuild, which
// resolve part of their info there.
type simpleBuild struct {
	info         types.JarVersionInfo
	requireBuild bool
}

func (b simpleBuild) Info() types.JarVersionInfo { return b.info }

func (b simpleBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	b.info.MarkFetched()
	return b.info, nil
}

func (b simpleBuild) RequireBuild() bool { return b.requireBuild }
