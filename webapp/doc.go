// Package webapp is the backend of the plugin web UIs: protected code
// deployment into enclaves and view management against a
// secure-computation server, with an audit trail of every operation kept
// in a local sqlite database.
//
// The frontends speak the same dialect as the servers themselves: PUT and
// DELETE arrive as POST and GET carrying an X-HTTP-Method-Override header.
package webapp
