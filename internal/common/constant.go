package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the only authorization scheme accepted by the server.
const BearerPrefix = "Bearer "

// FilesURLPrefix is the public URL prefix under which uploads are served.
const FilesURLPrefix = "/files/"
