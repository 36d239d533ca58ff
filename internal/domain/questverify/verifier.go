package questverify

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

// Twitter Follow Verifier
type twitterFollowVerifier struct {
	Handle string `mapstructure:"twitter_handle" structs:"twitter_handle"`
}

func newTwitterFollowVerifier(ctx context.Context, data map[string]any, needParse bool) (*twitterFollowVerifier, error) {
	follow := twitterFollowVerifier{}
	err := mapstructure.Decode(data, &follow)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot decode map to struct: %v", err)
		return nil, errorx.Unknown
	}

	if needParse {
		if follow.Handle == "" {
			return nil, errorx.New(errorx.NotFound, "Not found twitter handle")
		}

		follow.Handle = strings.TrimPrefix(follow.Handle, "@")
	}

	return &follow, nil
}

func (v *twitterFollowVerifier) VerifyAttestation(
	ctx context.Context, att primus.Attestation,
) (Result, error) {
	fields, err := resolveFields(ctx, att)
	if err != nil {
		return nil, err
	}

	if !attestedURLContains(att, "screen_name="+v.Handle) {
		return Rejected.WithMessage("The attestation is not about @%s", v.Handle), nil
	}

	if fields["following"] != "true" {
		return Rejected.WithMessage("You have not followed @%s yet", v.Handle), nil
	}

	return Accepted, nil
}

// Twitter Interaction Verifier
type twitterInteractionVerifier struct {
	TweetURL string `mapstructure:"tweet_url" structs:"tweet_url"`
	Like     bool   `mapstructure:"like" structs:"like"`
	Retweet  bool   `mapstructure:"retweet" structs:"retweet"`

	tweetID string
}

func newTwitterInteractionVerifier(ctx context.Context, data map[string]any, needParse bool) (*twitterInteractionVerifier, error) {
	interaction := twitterInteractionVerifier{}
	err := mapstructure.Decode(data, &interaction)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot decode map to struct: %v", err)
		return nil, errorx.Unknown
	}

	tweetID, err := parseTweetID(interaction.TweetURL)
	if needParse {
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot parse tweet url: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid tweet url")
		}

		if !interaction.Like && !interaction.Retweet {
			return nil, errorx.New(errorx.BadRequest, "Provide at least one interaction")
		}
	}

	interaction.tweetID = tweetID
	return &interaction, nil
}

func (v *twitterInteractionVerifier) VerifyAttestation(
	ctx context.Context, att primus.Attestation,
) (Result, error) {
	fields, err := resolveFields(ctx, att)
	if err != nil {
		return nil, err
	}

	if !attestedURLContains(att, v.tweetID) {
		return Rejected.WithMessage("The attestation is not about this tweet"), nil
	}

	if v.Like && fields["favorited"] != "true" {
		return Rejected.WithMessage("You have not liked the tweet yet"), nil
	}

	if v.Retweet && fields["retweeted"] != "true" {
		return Rejected.WithMessage("You have not retweeted the tweet yet"), nil
	}

	return Accepted, nil
}

// resolveFields decodes the attested data into the fields committed by the
// response resolve selectors.
func resolveFields(ctx context.Context, att primus.Attestation) (map[string]string, error) {
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(att.Data), &fields); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot unmarshal attested data: %v", err)
		return nil, errorx.New(errorx.InvalidAttestation, "Malformed attested data")
	}

	return fields, nil
}

func attestedURLContains(att primus.Attestation, sub string) bool {
	return sub != "" && strings.Contains(att.Request.URL, sub)
}

func parseTweetID(tweetURL string) (string, error) {
	u, err := url.ParseRequestURI(tweetURL)
	if err != nil {
		return "", err
	}

	host := strings.TrimPrefix(u.Host, "www.")
	if host != "twitter.com" && host != "x.com" {
		return "", errorx.New(errorx.BadRequest, "Only accept twitter or x links")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "status" || parts[2] == "" {
		return "", errorx.New(errorx.BadRequest, "Cannot determine the tweet id")
	}

	return parts[2], nil
}
