// Package audio plays the short sound cues that accompany voice assistant
// events. It uses the beep library to play WAV, OGG, and MP3 files with
// volume control and a cue-to-file mapping from the config.
package audio
