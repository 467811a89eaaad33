package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	ttlcache "github.com/jellydator/ttlcache/v3"
)

// resolutionTTL bounds the owner cache. An owner cannot change mid-run, so
// the value only needs to outlive one pipeline invocation.
const resolutionTTL = 5 * time.Minute

type ownerEntry struct {
	name  string
	found bool
}

// resolver maps access key ids to their owning IAM user. Lookups walk every
// user and every key (the IAM API has no reverse index), so results are
// cached per key id. Errors are not cached.
type resolver struct {
	api   iamAPI
	cache *ttlcache.Cache[string, ownerEntry]
}

func newResolver(api iamAPI) *resolver {
	return &resolver{
		api: api,
		cache: ttlcache.New[string, ownerEntry](
			ttlcache.WithDisableTouchOnHit[string, ownerEntry](),
		),
	}
}

// Owner returns the user name owning accessKeyID. found=false with a nil
// error means the key matched no user; a non-nil error means the lookup
// itself failed and nothing can be said about ownership.
func (r *resolver) Owner(ctx context.Context, accessKeyID string) (name string, found bool, err error) {
	var lerr error
	loader := ttlcache.LoaderFunc[string, ownerEntry](
		func(c *ttlcache.Cache[string, ownerEntry], key string) *ttlcache.Item[string, ownerEntry] {
			var entry ownerEntry
			entry, lerr = r.lookup(ctx, key)
			if lerr == nil {
				return c.Set(key, entry, resolutionTTL)
			}
			return nil
		},
	)

	item := r.cache.Get(accessKeyID, ttlcache.WithLoader[string, ownerEntry](loader))
	if lerr != nil {
		return "", false, lerr
	}
	entry := item.Value()
	return entry.name, entry.found, nil
}

func (r *resolver) lookup(ctx context.Context, accessKeyID string) (ownerEntry, error) {
	users := iam.NewListUsersPaginator(r.api, &iam.ListUsersInput{})
	for users.HasMorePages() {
		page, err := users.NextPage(ctx)
		if err != nil {
			return ownerEntry{}, fmt.Errorf("listing IAM users: %w", err)
		}
		for _, u := range page.Users {
			keys := iam.NewListAccessKeysPaginator(r.api, &iam.ListAccessKeysInput{UserName: u.UserName})
			for keys.HasMorePages() {
				kp, err := keys.NextPage(ctx)
				if err != nil {
					return ownerEntry{}, fmt.Errorf("listing access keys for %s: %w", aws.ToString(u.UserName), err)
				}
				for _, k := range kp.AccessKeyMetadata {
					if aws.ToString(k.AccessKeyId) == accessKeyID {
						return ownerEntry{name: aws.ToString(u.UserName), found: true}, nil
					}
				}
			}
		}
	}
	return ownerEntry{}, nil
}
