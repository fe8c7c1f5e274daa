package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gs-cluster/guild"
	"github.com/gs-cluster/wire"
)

// The management surface: shards and admin tooling call the directory
// services through these JSON endpoints, mounted on the gateway
// listener.

type loginReq struct {
	Account  string `json:"account"`
	ServerID uint32 `json:"serverId"`
}

type friendReq struct {
	CharID     uint32 `json:"charId"`
	CharName   string `json:"charName"`
	FriendID   uint32 `json:"friendId"`
	FriendName string `json:"friendName"`
	ServerID   uint32 `json:"serverId"`
	Accepted   bool   `json:"accepted"`
}

type guildReq struct {
	GuildID  uint32 `json:"guildId"`
	Name     string `json:"name"`
	CharID   uint32 `json:"charId"`
	CharName string `json:"charName"`
	ServerID uint32 `json:"serverId"`
	Position uint8  `json:"position"`
	Text     string `json:"text"`
}

func registerOps(f *fabric) {
	gw := f.gateway

	gw.Handle("/login", func(w http.ResponseWriter, r *http.Request) {
		var body loginReq
		if !decodeBody(w, r, &body) {
			return
		}
		writeOK(w, f.directory.TryLogin(body.Account, body.ServerID))
	})

	gw.Handle("/logoff", func(w http.ResponseWriter, r *http.Request) {
		var body loginReq
		if !decodeBody(w, r, &body) {
			return
		}
		f.directory.LogOff(body.Account, body.ServerID)
		writeOK(w, true)
	})

	gw.Handle("/kill", func(w http.ResponseWriter, r *http.Request) {
		var body loginReq
		if !decodeBody(w, r, &body) {
			return
		}
		writeOK(w, f.directory.Kick(body.Account))
	})

	gw.Handle("/q/session", func(w http.ResponseWriter, r *http.Request) {
		id, ok := f.directory.ServerOf(r.URL.Query().Get("account"))
		if !ok {
			fmt.Fprint(w, "0")
			return
		}
		fmt.Fprint(w, id)
	})

	gw.Handle("/friend/request", func(w http.ResponseWriter, r *http.Request) {
		var body friendReq
		if !decodeBody(w, r, &body) {
			return
		}
		writeOK(w, f.friends.FriendRequest(body.CharID, body.CharName, body.FriendID, body.FriendName))
	})

	gw.Handle("/friend/response", func(w http.ResponseWriter, r *http.Request) {
		var body friendReq
		if !decodeBody(w, r, &body) {
			return
		}
		f.friends.FriendResponse(body.CharID, body.CharName, body.FriendID, body.FriendName, body.Accepted)
		writeOK(w, true)
	})

	gw.Handle("/friend/enter", func(w http.ResponseWriter, r *http.Request) {
		var body friendReq
		if !decodeBody(w, r, &body) {
			return
		}
		f.friends.PlayerEnteredGame(body.ServerID, body.CharID, body.CharName)
		writeOK(w, true)
	})

	gw.Handle("/friend/leave", func(w http.ResponseWriter, r *http.Request) {
		var body friendReq
		if !decodeBody(w, r, &body) {
			return
		}
		f.friends.PlayerLeftGame(body.CharID, body.CharName)
		writeOK(w, true)
	})

	gw.Handle("/friend/chatroom", func(w http.ResponseWriter, r *http.Request) {
		var body friendReq
		if !decodeBody(w, r, &body) {
			return
		}
		auth := f.friends.CreateChatRoom(body.CharID, body.CharName, body.FriendName)
		if auth == nil {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(auth)
	})

	gw.Handle("/friend/letter", func(w http.ResponseWriter, r *http.Request) {
		var body wire.MsgLetter
		if !decodeBody(w, r, &body) {
			return
		}
		f.friends.ForwardLetter(&body)
		writeOK(w, true)
	})

	gw.Handle("/guild/create", func(w http.ResponseWriter, r *http.Request) {
		var body guildReq
		if !decodeBody(w, r, &body) {
			return
		}
		writeOK(w, f.guilds.CreateGuild(body.Name, body.CharName, body.CharID, nil, body.ServerID))
	})

	gw.Handle("/guild/join", func(w http.ResponseWriter, r *http.Request) {
		var body guildReq
		if !decodeBody(w, r, &body) {
			return
		}
		writeOK(w, f.guilds.CreateGuildMember(body.GuildID, body.CharID, body.CharName, guild.Position(body.Position), body.ServerID))
	})

	gw.Handle("/guild/message", func(w http.ResponseWriter, r *http.Request) {
		var body guildReq
		if !decodeBody(w, r, &body) {
			return
		}
		f.guilds.SendGuildMessage(body.GuildID, body.CharName, body.Text)
		writeOK(w, true)
	})

	gw.Handle("/q/guild", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.URL.Query().Get("guildId"), 10, 32)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.guilds.GetGuildList(uint32(id)))
	})

	gw.Handle("/broadcast", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		f.gateway.Broadcast(body.Text)
		writeOK(w, true)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, ok bool) {
	if !ok {
		w.WriteHeader(http.StatusConflict)
	}
	fmt.Fprint(w, ok)
}
