// Package config provides configuration management for the oauth-gateway.
//
// Configuration is loaded from a YAML file with strict field checking:
// unknown fields are rejected so typos fail fast rather than silently
// disabling features.
//
// # Loading
//
//	cfg, err := config.LoadConfig("config.yaml")
//
// Loading runs four steps, in order:
//
//  1. Strict YAML decoding
//  2. ENV[NAME] indirection for openid.client_id and openid.client_secret
//  3. Default values for optional fields
//  4. Validation (fails fast with all errors collected)
//
// # Secret indirection
//
// The OIDC client credentials may reference environment variables instead
// of being written into the file:
//
//	openid:
//	  client_id: ENV[GATEWAY_CLIENT_ID]
//	  client_secret: ENV[GATEWAY_CLIENT_SECRET]
//
// A referenced variable that is not set is a load error.
//
// # Validation
//
// Validation collects every error before returning, with dotted field
// paths in the messages:
//
//	configuration validation failed with 2 errors:
//	  - servers[0].listen: field is required
//	  - servers[1].name: duplicate virtual host "api.example" on 127.0.0.1:8443
//
// Each (listen, name) pair must be unique across the configuration; name
// comparison is case-insensitive. Public route patterns are compiled in
// their anchored form (^pattern$) during validation, so an invalid regular
// expression is a load error, not a request-time surprise.
package config
