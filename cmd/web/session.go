package main

// playSessionIDKey stores the ID of the puzzle instance in the scs session.
const playSessionIDKey = "playSessionID"
