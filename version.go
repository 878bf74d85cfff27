package espalier

// Version identifies this build. Release builds overwrite it with
// -ldflags "-X github.com/aretw0/espalier.Version=v1.2.3".
var Version = "0.1.0-dev"
