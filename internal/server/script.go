package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ScriptConfig holds the defaults baked into the client script. Every value
// can still be overridden by the embedding page through window.PAYWALL_*.
type ScriptConfig struct {
	APIURL         string
	CookieName     string
	Distribution   string
	Container      string
	ExpirationDays int
	Variants       []string
}

// handleScript serves the client script with the server's defaults
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	cfg := s.script
	if cfg.APIURL == "" {
		// Determine server URL from request
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		cfg.APIURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	if len(cfg.Variants) == 0 {
		cfg.Variants = s.variants.Strings()
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write([]byte(GenerateScript(cfg)))
}

func jsString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// GenerateScript renders the client script for cfg.
func GenerateScript(cfg ScriptConfig) string {
	if cfg.CookieName == "" {
		cfg.CookieName = "paywall_variant"
	}
	if cfg.Distribution == "" {
		cfg.Distribution = "50,50"
	}
	if cfg.Container == "" {
		cfg.Container = "paywall-container"
	}
	if cfg.ExpirationDays <= 0 {
		cfg.ExpirationDays = 30
	}
	if len(cfg.Variants) == 0 {
		cfg.Variants = []string{"a", "b", "c", "d"}
	}

	return fmt.Sprintf(`(function(){
  'use strict';

  var C={
    api:window.PAYWALL_API_URL||%s,
    cookie:window.PAYWALL_COOKIE_NAME||%s,
    distribution:window.PAYWALL_DISTRIBUTION||%s,
    container:window.PAYWALL_CONTAINER||%s,
    days:window.PAYWALL_EXPIRATION||%d
  };
  var V=%s;
  if(C.container.charAt(0)!=='#')C.container='#'+C.container;

  function setCookie(v){
    var d=new Date();
    d.setTime(d.getTime()+C.days*864e5);
    document.cookie=C.cookie+'='+v+'; expires='+d.toUTCString()+'; path=/; SameSite=Strict';
  }
  function getCookie(){
    var m=document.cookie.match(new RegExp('(^| )'+C.cookie+'=([^;]+)'));
    return m?m[2]:null;
  }
  function valid(v){return V.indexOf(v)!==-1;}

  function draw(){
    var w=C.distribution.split(',').map(Number);
    var r=Math.random()*100,sum=0;
    for(var i=0;i<w.length&&i<V.length;i++){
      if(!(w[i]>0))continue;
      sum+=w[i];
      if(sum>=r)return V[i];
    }
    return V[0];
  }

  function send(method,path,body,cb){
    var x=new XMLHttpRequest();
    x.open(method,C.api+path,true);
    x.setRequestHeader('Content-Type','application/json');
    x.onreadystatechange=function(){
      if(x.readyState!==4)return;
      if(x.status>=200&&x.status<300){
        try{cb(null,JSON.parse(x.responseText));}catch(e){cb(e);}
      }else{
        cb(new Error('Request failed: '+x.status));
      }
    };
    x.send(body?JSON.stringify(body):null);
  }

  function report(type,planId){
    var e={type:type,variant:P.variant,url:window.location.href,timestamp:new Date().toISOString()};
    if(planId)e.planId=planId;
    send('POST','/events',e,function(err){
      if(err)console.warn('Failed to track '+type+':',err);
    });
  }

  var P={
    variant:null,

    init:function(){
      var el=document.querySelector(C.container);
      if(!el)return;

      var pinned=el.getAttribute('data-variant');
      var stored=getCookie();
      if(pinned&&valid(pinned)){
        P.variant=pinned;
        setCookie(pinned);
      }else if(stored&&valid(stored)){
        P.variant=stored;
      }else{
        P.variant=draw();
        setCookie(P.variant);
      }

      el.setAttribute('data-assigned-variant',P.variant);
      report('impression');
      P.load(el);
    },

    load:function(el){
      var link=document.createElement('link');
      link.rel='stylesheet';
      link.href=C.api+'/styles/paywall-'+P.variant+'.css';
      document.head.appendChild(link);

      send('GET','/variant?variant='+encodeURIComponent(P.variant),null,function(err,data){
        if(err||!data||!data.html){
          console.error('Failed to load paywall content:',err);
          return;
        }
        el.innerHTML=data.html;
        el.querySelectorAll('button[data-plan-id]').forEach(function(b){
          b.addEventListener('click',function(){
            P.trackConversion(b.getAttribute('data-plan-id'));
          });
        });
      });
    },

    trackConversion:function(planId){report('conversion',planId);},

    setVariant:function(v){
      if(!valid(v))throw new Error('Invalid variant: '+v);
      P.variant=v;
      setCookie(v);
    },

    clearVariant:function(){
      document.cookie=C.cookie+'=; Max-Age=-99999999; path=/';
      P.variant=null;
    }
  };

  if(document.readyState==='loading'){
    document.addEventListener('DOMContentLoaded',P.init);
  }else{
    P.init();
  }

  window.PaywallSplit=P;
})();`,
		jsString(cfg.APIURL),
		jsString(cfg.CookieName),
		jsString(cfg.Distribution),
		jsString(cfg.Container),
		cfg.ExpirationDays,
		jsString(cfg.Variants),
	)
}
