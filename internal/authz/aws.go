package authz

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// CredentialsProvider exposes the session's infrastructure identity as a
// static AWS credentials provider for the external API's signing layer.
// The provider holds a copy; wiping the session does not invalidate it.
func (s *Session) CredentialsProvider() aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider(s.Infra.AccessKeyID, s.Infra.SecretKey, "")
}
