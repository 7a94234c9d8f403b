package utils

import (
	"time"

	"github.com/google/uuid"
	"github.com/imagekit-developer/imagekit-go"
)

// UploadAuth is the short-lived triple a browser needs to upload a file
// straight to ImageKit.
type UploadAuth struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"publicKey,omitempty"`
	URLEndpoint string `json:"urlEndpoint,omitempty"`
}

// ImageKitSigner issues client upload tokens through the ImageKit SDK.
// Without a private key it is unconfigured and ik stays nil.
type ImageKitSigner struct {
	ik          *imagekit.ImageKit
	publicKey   string
	urlEndpoint string
	ttl         time.Duration
	now         func() time.Time
}

func NewImageKitSigner(privateKey, publicKey, urlEndpoint string, ttl time.Duration) *ImageKitSigner {
	s := &ImageKitSigner{
		publicKey:   publicKey,
		urlEndpoint: urlEndpoint,
		ttl:         ttl,
		now:         time.Now,
	}
	if privateKey != "" {
		s.ik = imagekit.NewFromParams(imagekit.NewParams{
			PrivateKey:  privateKey,
			PublicKey:   publicKey,
			UrlEndpoint: urlEndpoint,
		})
	}
	return s
}

// Configured reports whether a private key was provided.
func (s *ImageKitSigner) Configured() bool {
	return s.ik != nil
}

// Sign issues a fresh token. ImageKit rejects expiries more than an hour out.
func (s *ImageKitSigner) Sign() UploadAuth {
	signed := s.ik.SignToken(imagekit.SignTokenParam{
		Token:   uuid.NewString(),
		Expires: s.now().Add(s.ttl).Unix(),
	})
	return UploadAuth{
		Token:       signed.Token,
		Expire:      signed.Expires,
		Signature:   signed.Signature,
		PublicKey:   s.publicKey,
		URLEndpoint: s.urlEndpoint,
	}
}
