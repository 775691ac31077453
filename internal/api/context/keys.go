package context

type Key string

const (
	Route        Key = "route"
	Session      Key = "session"
	Organization Key = "organization"
	MemberRole   Key = "member_role"
	Params       Key = "params"
	ClientIP     Key = "client_ip"
)
