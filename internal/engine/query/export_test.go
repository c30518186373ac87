package query

// Encode exposes encode for testing.
var Encode = encode
