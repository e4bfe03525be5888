// Package session implements the translation session lifecycle.
//
// A Session owns one upstream model stream for the duration of a client
// conversation. Starting a session performs the fixed upstream setup
// sequence (session start, prompt start, system instruction, open audio
// turn) and only signals readiness to the client once every step has
// succeeded. While active, the session forwards client microphone audio
// upstream and relays model responses (synthesized audio, transcript
// text, speaker-role changes) back through a Sink. Ending a session
// performs the mirrored teardown sequence and is idempotent.
//
// The Manager tracks live sessions per client connection and reaps
// sessions whose clients have gone idle.
package session
