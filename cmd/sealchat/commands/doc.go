// Package commands defines the sealchat CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - setup            Create an identity key and publish it to the server
//   - unlock           Verify the password and print the identity state
//   - change-password  Re-wrap the identity key under a new password
//   - fingerprint      Print the identity fingerprint
//   - register-device  Publish this device's key to the directory
//   - revoke-device    Revoke a device key in the directory
//   - send             Send a message to a chat
//   - sync             Connect and stream chat events to stdout
//   - backup           Print the recovery mnemonic for the identity key
//   - restore          Recreate the identity key from a mnemonic
//
// # Implementation
//
// The root command loads the YAML config, layers flag overrides on top and
// builds the full dependency graph (stores, relay client, services) before
// any subcommand runs, so handlers share one app context.
package commands
