// Package imageref builds and validates container image references.
package imageref

import (
	"fmt"
	"regexp"

	"github.com/distribution/reference"
)

// repoNameRe matches valid ECR repository names: lowercase segments separated
// by '/', each segment allowing '.', '_', and '-' between alphanumerics.
var repoNameRe = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

// Ref is a fully qualified, tagged container image reference.
type Ref struct {
	Registry   string // {account}.dkr.ecr.{region}.amazonaws.com
	Repository string // repository name within the registry
	Tag        string
}

// String returns the reference in registry/repository:tag form.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// RegistryHost returns the ECR registry hostname for an account and region.
func RegistryHost(accountID, region string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", accountID, region)
}

// Remote constructs the fully qualified remote reference for a repository in
// an account's regional ECR registry and validates it.
func Remote(accountID, region, repo, tag string) (Ref, error) {
	ref := Ref{
		Registry:   RegistryHost(accountID, region),
		Repository: repo,
		Tag:        tag,
	}
	if err := ref.Validate(); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// Local returns the repository:tag form used for the locally built image.
func Local(repo, tag string) string {
	return fmt.Sprintf("%s:%s", repo, tag)
}

// Validate checks the reference against the distribution reference grammar.
func (r Ref) Validate() error {
	if !repoNameRe.MatchString(r.Repository) {
		return fmt.Errorf("invalid repository name %q", r.Repository)
	}
	named, err := reference.ParseNormalizedNamed(r.String())
	if err != nil {
		return fmt.Errorf("invalid image reference %q: %w", r.String(), err)
	}
	if _, ok := named.(reference.Tagged); !ok {
		return fmt.Errorf("image reference %q has no tag", r.String())
	}
	if reference.Domain(named) != r.Registry {
		return fmt.Errorf("image reference %q resolved to unexpected registry %q", r.String(), reference.Domain(named))
	}
	return nil
}

// Parse parses an arbitrary image reference string into a Ref. A missing tag
// defaults to "latest", matching the docker engine's behavior.
func Parse(s string) (Ref, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid image reference %q: %w", s, err)
	}
	named = reference.TagNameOnly(named)
	tagged, ok := named.(reference.Tagged)
	if !ok {
		return Ref{}, fmt.Errorf("image reference %q has no tag", s)
	}
	return Ref{
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
		Tag:        tagged.Tag(),
	}, nil
}
