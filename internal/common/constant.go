package common

// SessionCookieName is the cookie carrying the signed server-side session id.
const SessionCookieName = "pilotkeeper_session"
